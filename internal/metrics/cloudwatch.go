package metrics

import (
	"context"
	"log/slog"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/artstore-orderflow/internal/aws"
)

// CloudWatch publishes one datum per event. Publishing errors are logged and dropped.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	log       *slog.Logger
	nowFunc   func() time.Time
}

func NewCloudWatch(client aws.CloudWatchAPI, namespace string, log *slog.Logger) *CloudWatch {
	return &CloudWatch{client: client, namespace: namespace, log: log, nowFunc: time.Now}
}

func (c *CloudWatch) CheckoutInitiated(ctx context.Context) {
	c.put(ctx, "CheckoutInitiated", "", "")
}

func (c *CloudWatch) CheckoutRejected(ctx context.Context, reason string) {
	c.put(ctx, "CheckoutRejected", "Reason", reason)
}

func (c *CloudWatch) VerificationOutcome(ctx context.Context, outcome string) {
	c.put(ctx, "Verification", "Outcome", outcome)
}

func (c *CloudWatch) NotificationFailed(ctx context.Context, kind string) {
	c.put(ctx, "NotificationFailed", "Kind", kind)
}

func (c *CloudWatch) put(ctx context.Context, name, dimName, dimValue string) {
	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Timestamp:  sdkaws.Time(c.nowFunc()),
		Unit:       cwtypes.StandardUnitCount,
		Value:      sdkaws.Float64(1),
	}
	if dimName != "" {
		datum.Dimensions = []cwtypes.Dimension{{Name: sdkaws.String(dimName), Value: sdkaws.String(dimValue)}}
	}
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(c.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		c.log.WarnContext(ctx, "put metric data failed", "metric", name, "error", err)
	}
}
