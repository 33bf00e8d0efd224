package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwsvc "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/pankaj-dahiya-devops/dp-remediate/internal/models"
	"github.com/pankaj-dahiya-devops/dp-remediate/internal/providers/aws/common"
)

// CloudWatch metric names.
const (
	MetricResources      = "Resources"
	MetricTargetFailures = "TargetFailures"
)

// CloudWatchPublisher sends one datum per kind/status pair of a run.
type CloudWatchPublisher struct {
	client    common.CloudWatchClient
	namespace string
}

// NewCloudWatchPublisher returns a publisher writing to namespace.
func NewCloudWatchPublisher(client common.CloudWatchClient, namespace string) *CloudWatchPublisher {
	return &CloudWatchPublisher{client: client, namespace: namespace}
}

// Publish issues a single PutMetricData call for report. A report with no
// outcomes and no target errors publishes nothing.
func (p *CloudWatchPublisher) Publish(ctx context.Context, report *models.RunReport) error {
	data := buildMetricData(report)
	if len(data) == 0 {
		return nil
	}
	_, err := p.client.PutMetricData(ctx, &cwsvc.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data to %s: %w", p.namespace, err)
	}
	return nil
}

type kindStatus struct {
	kind   models.ResourceKind
	status models.Status
}

// buildMetricData aggregates report into datums sorted by kind then status.
func buildMetricData(report *models.RunReport) []cwtypes.MetricDatum {
	counts := make(map[kindStatus]int)
	for _, o := range report.Outcomes {
		counts[kindStatus{o.Resource.Kind, o.Status}]++
	}
	keys := make([]kindStatus, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].status < keys[j].status
	})

	ts := report.FinishedAt
	var data []cwtypes.MetricDatum
	for _, k := range keys {
		data = append(data, datum(MetricResources, float64(counts[k]), ts,
			dimension("Kind", string(k.kind)),
			dimension("Status", string(k.status)),
		))
	}
	for _, te := range report.TargetErrors {
		data = append(data, datum(MetricTargetFailures, 1, ts, dimension("Kind", string(te.Kind))))
	}
	return data
}

func datum(name string, value float64, ts time.Time, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	d := cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       cwtypes.StandardUnitCount,
	}
	if !ts.IsZero() {
		d.Timestamp = aws.Time(ts)
	}
	return d
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
