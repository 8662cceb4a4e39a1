package repository

import "errors"

// 通用仓储错误
var (
	// ErrNotFound 实体不存在
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists 实体已存在
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidID ID 无效
	ErrInvalidID = errors.New("invalid entity ID")

	// ErrInvalidData 数据无效
	ErrInvalidData = errors.New("invalid entity data")
)

// 用户相关错误
var (
	ErrUserNotFound = errors.New("user not found")
)

// 看板相关错误
var (
	ErrBoardNotFound = errors.New("board not found")
)

// 订阅者相关错误
var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
)

// 计划相关错误
var (
	ErrScheduleNotFound = errors.New("schedule not found")
)
