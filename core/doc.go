// Package core contains the inspection domain contracts, entities, and
// orchestration logic: the flow compiler, the flow publisher state machine,
// the per-recipient dispatcher, and the send-inspection service. Lower-level
// adapters (WhatsApp client, SQL stores, HTTP server) depend on this package;
// core must not depend on provider-specific or transport-specific adapters.
package core
