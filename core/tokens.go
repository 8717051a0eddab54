package core

import "github.com/google/uuid"

const FlowTokenPrefix = "inspection_"

// UUIDTokenGenerator issues one opaque token per recipient.
type UUIDTokenGenerator struct{}

func (UUIDTokenGenerator) NewFlowToken() string {
	return FlowTokenPrefix + uuid.NewString()
}

var _ TokenGenerator = UUIDTokenGenerator{}
