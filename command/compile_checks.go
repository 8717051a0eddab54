package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SendInspectionMessage] = (*SendInspectionCommand)(nil)
	_ gocmd.Commander[IngestWebhookMessage]  = (*IngestWebhookCommand)(nil)
)
