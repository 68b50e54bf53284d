package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"helpdesk-scheduler/internal/logging"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WorkerLocker сериализует изменяющие операции над календарем одного сотрудника.
type WorkerLocker interface {
	Lock(workerID string) (unlock func(), err error)
}

// LocalWorkerLocker - блокировки в памяти процесса.
type LocalWorkerLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalWorkerLocker() *LocalWorkerLocker {
	return &LocalWorkerLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalWorkerLocker) Lock(workerID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[workerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[workerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

var ErrLockTimeout = errors.New("worker lock timeout")

// Снимаем ключ только если он все еще наш.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisWorkerLocker - распределенная блокировка на SET NX для нескольких экземпляров сервиса.
//
// Ключ не продлевается: ttl должен быть больше самой долгой операции под
// блокировкой (автоназначение на неделю). Если ключ истек раньше, другой
// экземпляр мог войти параллельно; такое снятие пишется в лог.
type RedisWorkerLocker struct {
	client   *redis.Client
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
	logger   *logrus.Logger
}

func NewRedisWorkerLocker(client *redis.Client, ttl, wait time.Duration) *RedisWorkerLocker {
	return &RedisWorkerLocker{
		client:   client,
		ttl:      ttl,
		wait:     wait,
		interval: 50 * time.Millisecond,
		logger:   logging.New(),
	}
}

func lockKey(workerID string) string {
	return "scheduler:worker-lock:" + workerID
}

func (l *RedisWorkerLocker) Lock(workerID string) (func(), error) {
	key := lockKey(workerID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("acquire lock for worker %s: %w", workerID, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: worker %s", ErrLockTimeout, workerID)
		}
		time.Sleep(l.interval)
	}

	acquired := time.Now()
	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			l.logger.WithError(err).WithField("worker_id", workerID).Error("Failed to release worker lock")
			return
		}
		if released == 0 {
			l.logger.WithFields(logrus.Fields{
				"worker_id": workerID,
				"held":      time.Since(acquired).String(),
				"ttl":       l.ttl.String(),
			}).Warn("Worker lock expired before release")
		}
	}
	return unlock, nil
}
