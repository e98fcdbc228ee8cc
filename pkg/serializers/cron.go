package serializers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdziat/simple-form-actions/pkg/core"
)

// CronSpec is a parsed cron expression that remembers its source text.
type CronSpec struct {
	Spec     string
	Schedule cron.Schedule
}

// Next returns the next activation after from.
func (c CronSpec) Next(from time.Time) time.Time {
	return c.Schedule.Next(from)
}

func (c CronSpec) String() string {
	return c.Spec
}

var errExpectingCron = errors.New("expecting CronSpec")

// Cron carries CronSpec values as cron expressions.
type Cron struct {
	parser cron.Parser
}

// NewCron creates a serializer accepting standard five-field expressions and
// descriptors such as @daily.
func NewCron() *Cron {
	return &Cron{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (c *Cron) Export(ctx context.Context, x core.Exporter, value any) (any, error) {
	switch v := value.(type) {
	case CronSpec:
		return v.Spec, nil
	case *CronSpec:
		return v.Spec, nil
	}
	return nil, errExpectingCron
}

func (c *Cron) Import(ctx context.Context, typeName string, raw any) (any, error) {
	spec := strings.TrimSpace(rawString(raw))
	schedule, err := c.parser.Parse(spec)
	if err != nil {
		return nil, err
	}
	return CronSpec{Spec: spec, Schedule: schedule}, nil
}
