package clock

import (
	"sync"
	"time"
)

// Clock отдает текущее время. Сервисы получают его через конструктор,
// чтобы тесты могли зафиксировать "сегодня".
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real возвращает системные часы.
func Real() Clock {
	return realClock{}
}

// Fake - управляемые часы для тестов.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// Fixed возвращает часы, остановленные на t.
func Fixed(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set переставляет часы на t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance сдвигает часы вперед на d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
