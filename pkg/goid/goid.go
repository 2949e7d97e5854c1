// Package goid 读取当前 goroutine 的 ID，仅用于日志关联。
package goid

import (
	"runtime"
	"strconv"
)

const prefix = "goroutine "

// GetGID 当前 goroutine ID；解析失败返回 0
func GetGID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// 栈信息类似: "goroutine 123 [running]:\n"
	b := buf[:n]
	if len(b) <= len(prefix) || string(b[:len(prefix)]) != prefix {
		return 0
	}
	var id uint64
	for _, c := range b[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// String 十进制形式，供日志字段使用
func String() string {
	return strconv.FormatUint(GetGID(), 10)
}
