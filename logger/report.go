package logger

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// RunReport summarises a single decode run.
type RunReport struct {
	RunID         string
	Source        string
	FramesRead    int64
	FramesMatched int64
	QuotesDecoded int64
	Skipped       map[string]int64
	Elapsed       time.Duration
}

// Fields flattens the report for structured logging.
func (r RunReport) Fields() Fields {
	fields := Fields{
		"run_id":         r.RunID,
		"source":         r.Source,
		"frames_read":    r.FramesRead,
		"frames_matched": r.FramesMatched,
		"quotes_decoded": r.QuotesDecoded,
		"elapsed_ms":     float64(r.Elapsed.Nanoseconds()) / 1e6,
	}
	for reason, n := range r.Skipped {
		fields["skipped_"+reason] = n
	}
	return fields
}

func (r RunReport) metricData() []cwtypes.MetricDatum {
	dims := []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(r.Source)}}
	count := func(name string, v int64) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(v)),
		}
	}

	data := []cwtypes.MetricDatum{
		count("FramesRead", r.FramesRead),
		count("FramesMatched", r.FramesMatched),
		count("QuotesDecoded", r.QuotesDecoded),
		{
			MetricName: aws.String("RunDuration"),
			Dimensions: dims,
			Unit:       cwtypes.StandardUnitMilliseconds,
			Value:      aws.Float64(float64(r.Elapsed.Milliseconds())),
		},
	}

	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("FramesSkipped"),
			Dimensions: append([]cwtypes.Dimension{{Name: aws.String("Reason"), Value: aws.String(reason)}}, dims...),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(r.Skipped[reason])),
		})
	}
	return data
}

// LogReport writes the run report and publishes it to CloudWatch when
// InitCloudWatch has been called.
func LogReport(ctx context.Context, log *Log, r RunReport) {
	log.WithComponent("report").WithFields(r.Fields()).Info("run report")
	publishMetrics(ctx, r.metricData())
}
