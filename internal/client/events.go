// Package client 订阅战役事件并维护本地视图
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/fate-dice/internal/models"
)

// Meta 事件所属战役与序号
type Meta struct {
	CampaignID uint
	Seq        uint64
}

// Event 服务端推送的战役事件，只有本包内的四种实现
type Event interface {
	Meta() Meta
	Type() string
	sealed()
}

// RollComplete 检定完成
type RollComplete struct {
	meta    Meta
	Payload models.RollCompletePayload
}

// PoolUpdated 骰池生成或被GM修改
type PoolUpdated struct {
	meta    Meta
	Payload models.PoolUpdatedPayload
}

// ChallengeUpdate 挑战创建或结束
type ChallengeUpdate struct {
	meta    Meta
	Payload models.ChallengeUpdatePayload
}

// DayIncremented 战役进入新的一天
type DayIncremented struct {
	meta    Meta
	Payload models.DayIncrementedPayload
}

func (e *RollComplete) Meta() Meta    { return e.meta }
func (e *PoolUpdated) Meta() Meta     { return e.meta }
func (e *ChallengeUpdate) Meta() Meta { return e.meta }
func (e *DayIncremented) Meta() Meta  { return e.meta }

func (e *RollComplete) Type() string    { return models.EventRollComplete }
func (e *PoolUpdated) Type() string     { return models.EventDicePoolUpdated }
func (e *ChallengeUpdate) Type() string { return models.EventChallengeUpdate }
func (e *DayIncremented) Type() string  { return models.EventDayIncremented }

func (*RollComplete) sealed()    {}
func (*PoolUpdated) sealed()     {}
func (*ChallengeUpdate) sealed() {}
func (*DayIncremented) sealed()  {}

// ErrUnknownEvent 未知的事件类型
var ErrUnknownEvent = errors.New("未知的事件类型")

type envelope struct {
	Type       string          `json:"type"`
	CampaignID uint            `json:"campaign_id"`
	Seq        uint64          `json:"seq"`
	Payload    json.RawMessage `json:"payload"`
}

// DecodeFrame 解析一帧消息，一帧可能包含多条以换行分隔的事件。
// 无法解析的行会跳过并合并到返回的错误中，其余事件照常返回。
func DecodeFrame(data []byte) ([]Event, error) {
	var (
		events []Event
		errs   []error
	)
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		ev, err := decodeEvent(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errors.Join(errs...)
}

func decodeEvent(line []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("解析事件失败: %w", err)
	}
	meta := Meta{CampaignID: env.CampaignID, Seq: env.Seq}

	var (
		ev      Event
		payload interface{}
	)
	switch env.Type {
	case models.EventRollComplete:
		e := &RollComplete{meta: meta}
		ev, payload = e, &e.Payload
	case models.EventDicePoolUpdated:
		e := &PoolUpdated{meta: meta}
		ev, payload = e, &e.Payload
	case models.EventChallengeUpdate:
		e := &ChallengeUpdate{meta: meta}
		ev, payload = e, &e.Payload
	case models.EventDayIncremented:
		e := &DayIncremented{meta: meta}
		ev, payload = e, &e.Payload
	default:
		return nil, fmt.Errorf("%w: %q (seq=%d)", ErrUnknownEvent, env.Type, env.Seq)
	}

	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return nil, fmt.Errorf("解析 %s 事件内容失败 (seq=%d): %w", env.Type, env.Seq, err)
	}
	return ev, nil
}
