package websocket

import (
	"encoding/json"

	"github.com/wfunc/fate-dice/internal/models"
)

// Envelope 推送给客户端的战役事件
//
// Seq 在同一战役内按提交顺序严格递增，同一帧内的多个事件以换行分隔。
type Envelope struct {
	Type       string      `json:"type"`
	CampaignID uint        `json:"campaign_id"`
	Seq        uint64      `json:"seq"`
	Payload    interface{} `json:"payload"`
}

// encodeEvent 序列化事件
func encodeEvent(campaignID uint, seq uint64, ev models.Event) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:       ev.Type,
		CampaignID: campaignID,
		Seq:        seq,
		Payload:    ev.Payload,
	})
}
