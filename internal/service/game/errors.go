package game

import (
	"errors"
	"fmt"
)

// 错误分为两类，均可在本地恢复，且被拒绝的请求不会修改任何游戏状态：
// 1. ErrValidation：输入不合法（人数、队伍大小、重复投票等）
// 2. ErrState：在错误的阶段执行了操作
var (
	ErrValidation = errors.New("请求不合法")
	ErrState      = errors.New("当前阶段不允许该操作")
)

var (
	ErrInvalidPlayerCount = validation("玩家人数不在支持范围内")
	ErrDuplicatePlayer    = validation("玩家已存在")
	ErrUnknownPlayer      = validation("玩家不存在")
	ErrLobbyFull          = validation("房间人数已满")

	ErrNotCurrentProposer = validation("当前不是你的提名轮次")
	ErrWrongTeamSize      = validation("队伍人数不正确")
	ErrDuplicateNominee   = validation("队伍中存在重复的玩家")
	ErrIneligibleNominee  = validation("被提名的玩家不可用")

	ErrDuplicateVote   = validation("你已投票，不能重复投票")
	ErrIneligibleVoter = validation("该玩家没有投票资格")

	ErrPlayerNotOnTeam = validation("玩家不在任务队伍中")
	ErrDuplicateAction = validation("你已提交任务行动")
	ErrInvalidAction   = validation("未知的任务行动")

	ErrInvalidDelta = validation("怀疑度增量不能为负数")
	ErrInvalidRules = validation("规则配置不一致")
)

var (
	ErrWrongPhase        = state("当前阶段不支持该请求")
	ErrGameFinished      = state("游戏已结束")
	ErrMissionIncomplete = state("仍有队员未提交行动")
)

func validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func state(msg string) error {
	return fmt.Errorf("%w: %s", ErrState, msg)
}

// IsValidationError 判断错误是否属于输入校验类错误
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsStateError 判断错误是否属于阶段错误
func IsStateError(err error) bool {
	return errors.Is(err, ErrState)
}
