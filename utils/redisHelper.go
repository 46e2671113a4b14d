package utils

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mitrabooks/pos_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// get type name of struct
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis list cache: one entry per (type, business). Mutations invalidate. */

func listCacheKey[T any](businessId string) string {
	return GetTypeName[T]() + "List:" + businessId
}

// read cached list; ok=false on miss (or when redis is absent)
func RetrieveRedisList[T any](businessId string) ([]*T, bool, error) {
	var results []*T
	exists, err := config.GetRedisObject(listCacheKey[T](businessId), &results)
	if err != nil {
		return nil, false, err
	}
	return results, exists, nil
}

func StoreRedisList[T any](results []*T, businessId string) error {
	return config.SetRedisObject(listCacheKey[T](businessId), &results, GetCacheLifespan())
}

func InvalidateRedisList[T any](businessId string) error {
	return config.RemoveRedisKey(listCacheKey[T](businessId))
}
