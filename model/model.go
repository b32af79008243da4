package model

import (
	"github.com/bwmarrin/snowflake"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

func GenerateID() uint64 {
	return uint64(snowflakeNode.Generate())
}
