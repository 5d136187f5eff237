// pkg/feedback/log.go
package feedback

import (
	"context"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/logging"
)

// LogSink writes every effect to a structured logger at debug level
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink logging through logger
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) SpawnParticle(at entity.ID, p Particle) {
	s.logger.Debug(context.Background(), "particle spawned",
		"entity_id", uint64(at),
		"particle", p.Name,
		"r", p.Color.R, "g", p.Color.G, "b", p.Color.B,
	)
}

func (s *LogSink) PlaySound(at entity.ID, sound string) {
	s.logger.Debug(context.Background(), "sound played",
		"entity_id", uint64(at),
		"sound", sound,
	)
}
