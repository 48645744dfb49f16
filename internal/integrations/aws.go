package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"askaway/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

const (
	// MetricsNamespace is the CloudWatch namespace for platform metrics.
	MetricsNamespace = "QAPlatform"
	// BackupPrefix is the S3 key prefix for backups.
	BackupPrefix = "backups/"

	metricBatchSize = 20
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type metricPutter interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// AWSConfig holds static credentials and the backup bucket.
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
}

// Metric is a single CloudWatch datum.
type Metric struct {
	Name  string
	Value float64
}

// AWS uploads backups to S3 and publishes metrics to CloudWatch.
type AWS struct {
	s3     objectPutter
	cw     metricPutter
	bucket string
	now    func() time.Time
}

// NewAWS builds the clients when static credentials are present and returns
// a disabled client otherwise.
func NewAWS(ctx context.Context, cfg AWSConfig) (*AWS, error) {
	a := &AWS{bucket: cfg.Bucket, now: time.Now}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return a, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return a, err
	}
	a.s3 = s3.NewFromConfig(awsCfg)
	a.cw = cloudwatch.NewFromConfig(awsCfg)
	return a, nil
}

// S3Configured reports whether backups can be uploaded.
func (a *AWS) S3Configured() bool {
	return a != nil && a.s3 != nil && a.bucket != ""
}

// CloudWatchConfigured reports whether metrics can be published.
func (a *AWS) CloudWatchConfigured() bool {
	return a != nil && a.cw != nil
}

// Backup writes payload as indented JSON to backups/<key>.
func (a *AWS) Backup(ctx context.Context, key string, payload any) bool {
	if !a.S3Configured() {
		slog.WarnContext(ctx, "S3 not configured")
		observability.IntegrationSendsTotal.WithLabelValues("s3", observability.OutcomeSkipped).Inc()
		return false
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		slog.ErrorContext(ctx, "S3 backup encoding failed", "key", key, "error", err)
		return false
	}

	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "s3", "PutObject")
	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(BackupPrefix + key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	observability.EndSpan(span, err)
	if err != nil {
		slog.ErrorContext(ctx, "S3 backup failed", "key", key, "error", err)
		observability.IntegrationSendsTotal.WithLabelValues("s3", observability.OutcomeFailure).Inc()
		return false
	}

	slog.InfoContext(ctx, "Data backup successful", "key", key)
	observability.IntegrationSendsTotal.WithLabelValues("s3", observability.OutcomeSuccess).Inc()
	return true
}

// SendMetrics publishes metrics in batches of twenty, the CloudWatch limit.
func (a *AWS) SendMetrics(ctx context.Context, metrics []Metric) bool {
	if !a.CloudWatchConfigured() {
		observability.IntegrationSendsTotal.WithLabelValues("cloudwatch", observability.OutcomeSkipped).Inc()
		return false
	}

	now := a.now().UTC()
	data := make([]cwtypes.MetricDatum, 0, len(metrics))
	for _, m := range metrics {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(m.Name),
			Value:      aws.Float64(m.Value),
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  aws.Time(now),
		})
	}

	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "cloudwatch", "PutMetricData")
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(data); start += metricBatchSize {
		batch := data[start:min(start+metricBatchSize, len(data))]
		g.Go(func() error {
			_, err := a.cw.PutMetricData(gctx, &cloudwatch.PutMetricDataInput{
				Namespace:  aws.String(MetricsNamespace),
				MetricData: batch,
			})
			return err
		})
	}
	err := g.Wait()
	observability.EndSpan(span, err)
	if err != nil {
		slog.ErrorContext(ctx, "CloudWatch metrics batch failed", "error", err)
		observability.IntegrationSendsTotal.WithLabelValues("cloudwatch", observability.OutcomeFailure).Inc()
		return false
	}
	observability.IntegrationSendsTotal.WithLabelValues("cloudwatch", observability.OutcomeSuccess).Inc()
	return true
}
