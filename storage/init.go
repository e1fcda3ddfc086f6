package storage

import (
	"TourAdmin/storage/database"
	"TourAdmin/storage/mq"
	"TourAdmin/storage/redis"
)

// Init 统一初始化存储层
func Init() error {
	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
