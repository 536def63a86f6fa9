package logger

import "go.uber.org/zap"

// New builds the production logger tagged with the owning service name.
func New(service string) (*zap.Logger, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", service)), nil
}
