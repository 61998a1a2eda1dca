// Package shopcache содержит кэш списков торговых точек с ограниченным временем жизни.
package shopcache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL — время жизни записи кэша.
const DefaultTTL = 60 * time.Second

const maxEntries = 256

// Cache хранит вычисленные списки торговых точек по ключу
// (сотрудник, дистрибьютор, токен инвалидации). Просроченные записи
// не выдаются; смена токена означает промах независимо от TTL.
type Cache struct {
	lru *expirable.LRU[string, []string]
}

// New создаёт кэш с указанным временем жизни записей.
func New(ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, []string](maxEntries, nil, ttl),
	}
}

func cacheKey(employee, distributor string, token int64) string {
	return fmt.Sprintf("%s|%s|%d", employee, distributor, token)
}

// Get возвращает сохранённый список и признак попадания.
func (c *Cache) Get(employee, distributor string, token int64) ([]string, bool) {
	return c.lru.Get(cacheKey(employee, distributor, token))
}

// Put сохраняет список для указанного ключа.
func (c *Cache) Put(employee, distributor string, token int64, shops []string) {
	c.lru.Add(cacheKey(employee, distributor, token), append([]string(nil), shops...))
}
