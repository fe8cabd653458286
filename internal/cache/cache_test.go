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
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheFromClient(client)
}

func TestSetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	in := payload{Name: "verification:abc", Count: 3}
	require.NoError(t, c.Set(ctx, "k1", in, time.Minute))

	var out payload
	require.NoError(t, c.Get(ctx, "k1", &out))
	assert.Equal(t, in, out)

	require.NoError(t, c.Delete(ctx, "k1"))

	var missed payload
	require.NoError(t, c.Get(ctx, "k1", &missed))
	assert.Equal(t, payload{}, missed)
}

func TestGetMissLeavesDataUntouched(t *testing.T) {
	c := newTestCache(t)

	out := payload{Name: "sentinel"}
	require.NoError(t, c.Get(context.Background(), "absent", &out))
	assert.Equal(t, "sentinel", out.Name)
}
