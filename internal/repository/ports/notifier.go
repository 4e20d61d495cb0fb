package ports

import "context"

type Message struct {
	FromTag string
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
