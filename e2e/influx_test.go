package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// influxReader queries the bucket the service writes to.
type influxReader struct {
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

func newInfluxReader(url, org, bucket, token string) *influxReader {
	c := influxdb2.NewClient(url, token)
	return &influxReader{bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// count returns the number of field values recorded for measurement in the
// last hour.
func (r *influxReader) count(ctx context.Context, measurement string) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start:-1h) |> filter(fn: (r) => r._measurement == %q)`, r.bucket, measurement)
	res, err := r.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

func (r *influxReader) Close() { r.client.Close() }
