package httptransport

import (
	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

// HTTPSendRequest is the wire form of a send or enqueue request.
type HTTPSendRequest struct {
	Destination string `json:"destination"`
	Content     string `json:"content"`
	Channel     string `json:"channel,omitempty"`
}

// HTTPSendResponse is the wire form of a send disposition.
type HTTPSendResponse struct {
	MessageID string `json:"messageId,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HTTPAcknowledgeRequest names the warning to acknowledge.
type HTTPAcknowledgeRequest struct {
	ID string `json:"id"`
}

// HTTPUpdateLimitsRequest carries replacement quota limits.
type HTTPUpdateLimitsRequest struct {
	HourlyLimit int64 `json:"hourlyLimit"`
	DailyLimit  int64 `json:"dailyLimit"`
}

func toSendRequest(req HTTPSendRequest) core.SendRequest {
	return core.SendRequest{
		Destination: req.Destination,
		Content:     req.Content,
		Channel:     req.Channel,
	}
}

func fromSendResult(result *core.SendResult) HTTPSendResponse {
	if result == nil {
		return HTTPSendResponse{}
	}
	return HTTPSendResponse{
		MessageID: result.MessageID,
		Outcome:   string(result.Outcome),
		Reason:    result.Reason,
	}
}

func fromSendFailure(result *core.SendResult, err error) HTTPSendResponse {
	resp := fromSendResult(result)
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
