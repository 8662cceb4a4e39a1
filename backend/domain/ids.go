package domain

import (
	"strings"

	"github.com/google/uuid"
)

// StableSubscriberID 基于看板 ID 与 Monday 用户 ID 生成稳定的订阅者 ID。
// 每次同步都会整体替换看板的 monday 订阅者，稳定 ID 保证外部引用不漂移。
func StableSubscriberID(boardID, mondayID string) string {
	boardID = strings.TrimSpace(boardID)
	mondayID = strings.TrimSpace(mondayID)
	if boardID == "" || mondayID == "" {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(boardID+"|monday|"+mondayID)).String()
}
