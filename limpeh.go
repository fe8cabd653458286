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
	"fmt"

	"github.com/limpehfi/limpeh/chain"
	"github.com/limpehfi/limpeh/config"
	"github.com/limpehfi/limpeh/internal/cache"
	redis_db "github.com/limpehfi/limpeh/internal/redis-db"
	"github.com/limpehfi/limpeh/worldid"
	"github.com/redis/go-redis/v9"
)

// Limpeh is the main service struct. It holds the chain gateway, the proof
// verifier, the session store, and the background queue.
type Limpeh struct {
	queue    *Queue
	redis    redis.UniversalClient
	cache    cache.Cache
	gateway  chain.Gateway
	verifier worldid.Verifier
}

// NewLimpeh initializes the service from the loaded configuration. The chain
// gateway and verifier are injected so the command layer can choose real
// implementations and tests can substitute stubs.
func NewLimpeh(gateway chain.Gateway, verifier worldid.Verifier) (*Limpeh, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newLimpeh := &Limpeh{
		queue:    newQueue,
		redis:    redisClient.Client(),
		cache:    cache.NewCacheFromClient(redisClient.Client()),
		gateway:  gateway,
		verifier: verifier,
	}
	return newLimpeh, nil
}

// Gateway exposes the chain gateway for the command layer.
func (l *Limpeh) Gateway() chain.Gateway {
	return l.gateway
}
