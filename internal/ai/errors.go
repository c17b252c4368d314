package ai

import (
	"fmt"

	"neuromatch/internal/errors"
	"neuromatch/internal/utils"
)

// PayloadLimit bounds the diagnostic payload attached to generation errors
const PayloadLimit = 180

// badStatusError reports a non-success response from the service
func badStatusError(provider, model string, status int, body string) error {
	return errors.NewAIError(errors.ErrCodeAIBadStatus,
		fmt.Sprintf("%s returned HTTP %d", provider, status), nil).
		WithContext("status", status).
		WithContext("payload", utils.Truncate(body, PayloadLimit)).
		WithContext("model", model)
}

// malformedEnvelopeError reports a success response whose envelope could
// not be read
func malformedEnvelopeError(provider, model, body string, cause error) error {
	return errors.NewAIError(errors.ErrCodeAIMalformed,
		fmt.Sprintf("%s returned a malformed response envelope", provider), cause).
		WithContext("payload", utils.Truncate(body, PayloadLimit)).
		WithContext("model", model)
}
