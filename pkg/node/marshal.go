package node

import (
	"encoding/json"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

func marshalNodeState(s apis.NodeState) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, pberrors.Wrap(pberrors.KindRegistry, "node: encode heartbeat", err)
	}
	return raw, nil
}
