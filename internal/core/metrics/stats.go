package metrics

// Stats 指标快照
type Stats struct {
	LanesCreated int64   // 累计创建的通道数
	LanesEvicted int64   // 累计驱逐的通道数
	ActiveLanes  int64   // 当前活跃通道数
	Retries      int64   // 因通道失效而重试的投递次数
	Delivered    int64   // 累计投递的值数量
	DeliverRate  float64 // 最近 60 秒的平均投递速率（次/秒）
}
