// Package xassetconf 加载资源重试的配置文件。
//
// 支持 YAML（.yaml/.yml）与 JSON（.json），按扩展名识别格式：
//
//	max_retry_count: 3
//	domain:            # 映射形式；写成列表时为环形映射
//	  a.com: b.com
//	concurrency: 8
//	timeout: 10s
//	log:
//	  level: info
//	  format: text
//	sink:
//	  addr: 127.0.0.1:6379
//	  prefix: xassets
//
// domain 写成列表 [h0, h1, ..., hn] 时展开为 h0→h1→...→hn→h0。
// 未出现的字段取默认值，见 Default。
//
// Watch 监视配置文件所在目录，文件变更时防抖后重新加载并回调。
package xassetconf
