package domain

import "time"

// Clock 抽象当前时间，便于测试中控制 TTL
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
