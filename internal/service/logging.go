package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// loggingConversionService decorates a ConversionServiceInterface with timing logs
type loggingConversionService struct {
	logger *zap.SugaredLogger
	next   ConversionServiceInterface
}

// NewLoggingConversionService returns a ConversionServiceInterface that logs every call and its duration.
func NewLoggingConversionService(logger *zap.SugaredLogger, next ConversionServiceInterface) ConversionServiceInterface {
	return &loggingConversionService{
		logger: logger,
		next:   next,
	}
}

func (s *loggingConversionService) Convert(ctx context.Context, from, to, amount string) (res *ConversionResult, err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Warnw("Conversion failed",
				"from", from,
				"to", to,
				"amount", amount,
				"took_ms", time.Since(begin).Milliseconds(),
				"error", err,
			)
			return
		}
		s.logger.Infow("Conversion",
			"from", res.From,
			"to", res.To,
			"amount", res.Amount,
			"result", res.Result,
			"took_ms", time.Since(begin).Milliseconds(),
		)
	}(time.Now())
	return s.next.Convert(ctx, from, to, amount)
}
