package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他客户端修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateRequest 幂等键已被使用：重复提交
var ErrDuplicateRequest = errors.New("请求正在处理或已完成，请勿重复提交")
