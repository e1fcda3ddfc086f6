package snowflake

import (
	"errors"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once

	errInvalidMachineID   = errors.New("invalid snowflake machine id")
	errGeneratorUninitial = errors.New("snowflake generator is not initialized")
)

// Init 初始化节点，machineID 取值 0~1023。重复调用只生效一次。
func Init(machineID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 1023 {
			initErr = errInvalidMachineID
			return
		}

		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			initErr = err
		}
	})

	return initErr
}

func NextID() (int64, error) {
	if node == nil {
		return 0, errGeneratorUninitial
	}

	return node.Generate().Int64(), nil
}

// NextString 以十进制字符串形式返回 ID，用于消息 ID 与对象名。
func NextString() (string, error) {
	id, err := NextID()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}
