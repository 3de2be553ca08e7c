package optimizer

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/store"
)

const promptHeader = `你是一个专业的日程优化顾问，请根据以下事件安排优化下周日程：

## 原始日程安排
`

const promptRules = `
## 优化要求
1. 保持每天的核心事件不变
2. 优化时间分配，避免冲突
3. 确保重要任务有足够时间
4. 添加必要的休息时间
5. 保持总事件数量大致相同
6. 时间格式统一为"HH:MM-HH:MM"
7. 对于已完成的事件，保持原样不变
8. 对于未开始的事件，可以调整时间
9. 如果一天任务太多，可以将任务调到之后的日期
## 输出要求
返回优化后的完整日程JSON对象，格式必须严格如下:
{
  "2024-06-10": [
    {"time": "09:00-10:00", "task": "会议", "completion": "待评价"},
    {"time": "10:30-12:00", "task": "项目开发", "completion": "待评价"}
  ],
  "2024-06-11": [
    // 其他日期...
  ]
}
只返回纯JSON，不要包含任何解释性文字或额外内容。`

// BuildPrompt embeds slice, every date of the range including empty days, as
// indented JSON inside the rebalancing instructions.
func BuildPrompt(slice store.Days) (string, error) {
	days := make(store.Days, len(slice))
	for date, events := range slice {
		if events == nil {
			events = []store.Event{}
		}
		days[date] = events
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(days); err != nil {
		return "", errors.Wrap(err, "encode schedule slice")
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString(strings.TrimRight(buf.String(), "\n"))
	b.WriteString("\n")
	b.WriteString(promptRules)
	return b.String(), nil
}
