package engine

// compositeObserver fans a single notification out to every configured
// observer.
type compositeObserver struct {
	observers []Observer
}

func (c compositeObserver) RecordEmitted(record OutputRecord) {
	for _, obs := range c.observers {
		obs.RecordEmitted(record)
	}
}

func (c compositeObserver) EventEmitted(event Event) {
	for _, obs := range c.observers {
		obs.EventEmitted(event)
	}
}

// NewCompositeObserver fans notifications out to every given observer.
func NewCompositeObserver(observers ...Observer) Observer {
	if len(observers) == 1 {
		return observers[0]
	}
	return compositeObserver{observers: observers}
}

// loggingObserver writes every record and event to a structured Logger.
type loggingObserver struct {
	logger Logger
}

// NewLoggingObserver constructs an Observer that logs through logger. A nil
// logger yields a no-op observer.
func NewLoggingObserver(logger Logger) Observer {
	if logger == nil {
		return noopObserver{}
	}
	return loggingObserver{logger: logger}
}

func (o loggingObserver) RecordEmitted(record OutputRecord) {
	label, _ := record.Metadata["label"].(string)
	o.logger.With("block", record.SourceBlockKey.String()).Info(
		"output record",
		"kind", string(record.Kind),
		"label", label,
		"fragments", len(record.Fragments),
	)
}

func (o loggingObserver) EventEmitted(event Event) {
	o.logger.With("event", event.Name).Debug("engine event")
}

type noopObserver struct{}

func (noopObserver) RecordEmitted(OutputRecord) {}
func (noopObserver) EventEmitted(Event)         {}
