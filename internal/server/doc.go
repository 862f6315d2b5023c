// Package server 提供绑定到全部派生监听地址的 HTTP 服务。
//
// # 功能特性
//
// 本包包含以下功能：
//   - 每个 urls 条目一个监听器，任一监听器失败时全部关闭
//   - 可配置的读写与空闲超时
//   - 访问日志中间件 (log/slog)
//   - 端口文件，写入第一个监听器实际绑定的端口
//
// # 使用示例
//
//	cfg, err := server.FromSnapshot(res.Snapshot)
//	if err != nil {
//	    return err
//	}
//	srv, err := server.NewServer(cfg, res.Snapshot, logger)
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
//
// # API 端点
//
// 服务器提供以下端点：
//   - GET /         - 返回服务信息和监听地址
//   - GET /health   - 健康检查端点
//   - GET /config   - 返回合并后的有效配置
package server
