package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// LoadFields 提供资源名/缓存键/结果状态字段，供加载流程日志复用。
func LoadFields(resource, key, status string) logrus.Fields {
	return logrus.Fields{
		"resource":  resource,
		"cache_key": key,
		"status":    status,
	}
}

// RequestFields 描述单次上游请求。
func RequestFields(requestID, url string, attempt int) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"url":        url,
		"attempt":    attempt,
	}
}
