package dto

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 客户端通过 WebSocket 发送的请求类型
const (
	REQ_PROPOSE_TEAM  = "ProposeTeam"
	REQ_PASS_PROPOSAL = "PassProposal"
	REQ_CAST_VOTE     = "CastVote"
	REQ_SUBMIT_ACTION = "SubmitAction"
	REQ_ABANDON       = "Abandon"
	REQ_GET_STATE     = "GetState"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`
}

type ProposeTeamRequest struct {
	Nominees []string `json:"nominees"`
}

type CastVoteRequest struct {
	Approve bool `json:"approve"`
}

type SubmitActionRequest struct {
	Action string `json:"action"`
}

type AbandonRequest struct {
	Reason string `json:"reason"`
}

func tryUnwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	var req T

	// 没有参数的请求允许省略 data
	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Error(
			"Failed to unwrap request",
			zap.String("request_type", reqType),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

func TryUnwrapProposeTeamRequest(wrapper RequestWrapper) *ProposeTeamRequest {
	return tryUnwrap[ProposeTeamRequest](wrapper, REQ_PROPOSE_TEAM)
}

func TryUnwrapCastVoteRequest(wrapper RequestWrapper) *CastVoteRequest {
	return tryUnwrap[CastVoteRequest](wrapper, REQ_CAST_VOTE)
}

func TryUnwrapSubmitActionRequest(wrapper RequestWrapper) *SubmitActionRequest {
	return tryUnwrap[SubmitActionRequest](wrapper, REQ_SUBMIT_ACTION)
}

func TryUnwrapAbandonRequest(wrapper RequestWrapper) *AbandonRequest {
	return tryUnwrap[AbandonRequest](wrapper, REQ_ABANDON)
}

// 放弃提名和查询状态不携带参数
func IsPassProposalRequest(wrapper RequestWrapper) bool {
	return wrapper.ReqType == REQ_PASS_PROPOSAL
}

func IsGetStateRequest(wrapper RequestWrapper) bool {
	return wrapper.ReqType == REQ_GET_STATE
}
