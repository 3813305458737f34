// Package e2e runs the whole service against real InfluxDB and Mosquitto
// containers. The tests are skipped unless DOCKER_AVAILABLE is set.
package e2e
