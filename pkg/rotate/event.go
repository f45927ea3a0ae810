// Package rotate implements the four-step Secrets Manager credential
// rotation protocol on top of the invocation harness. The orchestrator
// is stateless across invocations; all rotation state lives in the
// secret store's stage labels.
package rotate

import (
	"encoding/json"
	"fmt"
)

// Step is the rotation step requested by the platform. The enum is
// closed: any other string is a parse error, never a runtime branch.
type Step string

const (
	StepCreate Step = "createSecret"
	StepSet    Step = "setSecret"
	StepTest   Step = "testSecret"
	StepFinish Step = "finishSecret"
)

func (s *Step) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Step(raw) {
	case StepCreate, StepSet, StepTest, StepFinish:
		*s = Step(raw)
		return nil
	}
	return fmt.Errorf("unknown rotation step %q", raw)
}

func (s Step) String() string {
	return string(s)
}

// Event is the rotation request delivered by the platform. The JSON
// field names are fixed by the Secrets Manager rotation contract.
type Event struct {
	ClientRequestToken string `json:"ClientRequestToken"`
	SecretID           string `json:"SecretId"`
	Step               Step   `json:"Step"`
}

// Ack is the empty acknowledgement a rotation invocation returns. The
// platform only cares whether the invocation errored.
type Ack struct{}
