// Package autotag derives tags and titles from note text.
package autotag

import "strings"

// MaxSuggestions caps the number of tags Suggest returns.
const MaxSuggestions = 3

// Category is a tag name paired with the substrings that trigger it.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// DefaultCategories returns the built-in keyword table.
func DefaultCategories() []Category {
	return []Category{
		{Name: "技术", Keywords: []string{"技术", "编程", "代码", "api", "算法", "数据", "开发", "programming", "code", "algorithm", "software", "database"}},
		{Name: "工作", Keywords: []string{"工作", "项目", "会议", "任务", "计划", "deadline", "project", "meeting", "task", "plan"}},
		{Name: "学习", Keywords: []string{"学习", "教程", "笔记", "知识", "文档", "课程", "tutorial", "study", "course", "documentation"}},
		{Name: "想法", Keywords: []string{"想法", "思考", "观点", "感悟", "心得", "反思", "idea", "thought", "opinion", "reflection"}},
		{Name: "生活", Keywords: []string{"生活", "日常", "个人", "健康", "休闲", "娱乐", "life", "daily", "personal", "health", "hobby"}},
	}
}

// Suggester maps note text to category tags. It is safe for concurrent use.
type Suggester struct {
	categories []Category
}

// NewSuggester returns a Suggester over the given table. Keywords are
// lower-cased so matching stays case-insensitive. A nil table selects
// DefaultCategories.
func NewSuggester(categories []Category) *Suggester {
	if categories == nil {
		categories = DefaultCategories()
	}
	table := make([]Category, 0, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		table = append(table, Category{Name: name, Keywords: kws})
	}
	return &Suggester{categories: table}
}

// Categories returns a copy of the active table.
func (s *Suggester) Categories() []Category {
	out := make([]Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// Suggest returns up to MaxSuggestions category names whose keywords occur
// in title or content, in table order.
func (s *Suggester) Suggest(content, title string) []string {
	text := strings.ToLower(title + " " + content)

	var suggested []string
	for _, c := range s.categories {
		for _, kw := range c.Keywords {
			if strings.Contains(text, kw) {
				suggested = append(suggested, c.Name)
				break
			}
		}
		if len(suggested) == MaxSuggestions {
			break
		}
	}
	return suggested
}
