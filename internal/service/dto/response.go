package dto

// 服务器推送的响应类型
const (
	RESP_ERROR         = "Error"
	RESP_REPORT        = "Report"
	RESP_PUBLIC_STATE  = "PublicState"
	RESP_PRIVATE_STATE = "PrivateState"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
