package notify

import "go.uber.org/zap"

// Notifier delivers non-blocking success toasts to the user. The cart treats
// it as an external collaborator; delivery is fire-and-forget.
type Notifier interface {
	Success(message string)
}

type zapNotifier struct {
	log *zap.Logger
}

func NewZap(log *zap.Logger) Notifier {
	return &zapNotifier{log: log}
}

func (n *zapNotifier) Success(message string) {
	n.log.Info("notification",
		zap.String("kind", "success"),
		zap.String("message", message),
	)
}

type nop struct{}

// Nop returns a Notifier that discards everything.
func Nop() Notifier { return nop{} }

func (nop) Success(string) {}
