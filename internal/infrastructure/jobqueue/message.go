package jobqueue

import (
	"strings"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-live/internal/domain/match"
)

var ErrMalformedMessage = crerr.New("malformed task message")

// Message is the wire form of a task key.
type Message struct {
	MatchID  string `json:"match_id"`
	TaskKind string `json:"task_kind"`
}

func EncodeMessage(key jobscheduler.TaskKey) ([]byte, error) {
	body, err := sonic.Marshal(Message{MatchID: key.MatchID, TaskKind: string(key.Kind)})
	if err != nil {
		return nil, crerr.Wrapf(err, "encode task %s", key)
	}
	return body, nil
}

func DecodeMessage(body []byte) (jobscheduler.TaskKey, error) {
	var msg Message
	if err := sonic.Unmarshal(body, &msg); err != nil {
		return jobscheduler.TaskKey{}, crerr.Mark(crerr.Wrap(err, "decode task message"), ErrMalformedMessage)
	}

	kind, ok := jobscheduler.ParseTaskKind(msg.TaskKind)
	if !ok {
		return jobscheduler.TaskKey{}, crerr.Mark(crerr.Newf("unknown task_kind %q", msg.TaskKind), ErrMalformedMessage)
	}
	matchID := strings.TrimSpace(msg.MatchID)
	if kind == jobscheduler.TaskFixtures {
		matchID = jobscheduler.FixturesKey
	} else if err := match.ValidateID(matchID); err != nil {
		return jobscheduler.TaskKey{}, crerr.Mark(crerr.Wrap(err, "invalid match_id"), ErrMalformedMessage)
	}
	return jobscheduler.TaskKey{MatchID: matchID, Kind: kind}, nil
}
