/*
Copyright 2025 LimpehFi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package limpeh

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/limpehfi/limpeh/config"
	redis_db "github.com/limpehfi/limpeh/internal/redis-db"
	"github.com/limpehfi/limpeh/model"
)

// Queue wraps the asynq client used to defer webhook delivery and allowance
// reconciliation out of the request path.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// queueAllowanceReconcile schedules a delayed check of a standing allowance
// left behind by a failed repayment. The delay gives the operator time to
// retry the repayment before the service decides whether the allowance was
// consumed.
func (q *Queue) queueAllowanceReconcile(pending *model.PendingAllowance) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	taskOptions := []asynq.Option{
		asynq.TaskID(pending.AllowanceID),
		asynq.Queue(cfg.Queue.AllowanceQueue),
		asynq.ProcessIn(time.Duration(cfg.Queue.ReconcileDelayHours) * time.Hour),
	}
	task := asynq.NewTask(cfg.Queue.AllowanceQueue, payload, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued allowance reconcile: %+v", pending.AllowanceID)
	return nil
}

// queueWebhook enqueues a webhook delivery task.
func (q *Queue) queueWebhook(webhook NewWebhook) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(webhook)
	if err != nil {
		return err
	}
	taskOptions := []asynq.Option{asynq.Queue(cfg.Queue.WebhookQueue)}
	task := asynq.NewTask(cfg.Queue.WebhookQueue, payload, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	return nil
}
