package usecase

import "github.com/mzolotarev/notegraph/internal/core/ports"

// ProcessorRegistry holds source processors in registration order.
// The first processor that claims a source wins.
type ProcessorRegistry struct {
	processors []ports.SourceProcessor
}

func NewProcessorRegistry(processors ...ports.SourceProcessor) *ProcessorRegistry {
	return &ProcessorRegistry{processors: processors}
}

func (r *ProcessorRegistry) Register(p ports.SourceProcessor) {
	r.processors = append(r.processors, p)
}

func (r *ProcessorRegistry) Find(source string) ports.SourceProcessor {
	for _, p := range r.processors {
		if p.CanHandle(source) {
			return p
		}
	}
	return nil
}
