// Package catalog holds the built-in subjects, question templates, and mark
// defaults. Everything here is read-only after init; adding a subject or a
// template is a code change, not a runtime operation.
package catalog

import (
	"sort"

	"github.com/avolkov/papergen/internal/model"
)

// QuestionTemplate is a parameterized sentence with a single %s placeholder
// for the topic. Level is optional; when set it pins the cognitive level the
// template was written for.
type QuestionTemplate struct {
	Text  string
	Level model.CognitiveLevel
}

var subjectTopics = map[string][]string{
	"Operating Systems": {
		"Process Management",
		"CPU Scheduling",
		"Deadlocks",
		"Memory Management",
		"Virtual Memory",
		"File Systems",
		"Disk Scheduling",
		"Synchronization",
		"Threads and Concurrency",
		"System Calls",
	},
	"Database Systems": {
		"ER Modeling",
		"Relational Algebra",
		"SQL Queries",
		"Normalization",
		"Transactions",
		"Concurrency Control",
		"Indexing",
		"Query Optimization",
		"ACID Properties",
		"Recovery Techniques",
	},
	"Computer Networks": {
		"OSI Model",
		"TCP and UDP",
		"IP Addressing",
		"Routing Algorithms",
		"Congestion Control",
		"DNS",
		"HTTP and HTTPS",
		"Network Security",
		"Switching Techniques",
		"Error Detection",
	},
	"Data Structures": {
		"Arrays and Strings",
		"Linked Lists",
		"Stacks and Queues",
		"Binary Trees",
		"Heaps",
		"Hash Tables",
		"Graphs",
		"Sorting Algorithms",
		"Searching Algorithms",
		"Dynamic Programming",
	},
	"Software Engineering": {
		"Software Process Models",
		"Requirements Engineering",
		"System Design",
		"UML Diagrams",
		"Software Testing",
		"Agile Methods",
		"Version Control",
		"Software Maintenance",
		"Project Estimation",
		"Design Patterns",
	},
}

var categoryTemplates = map[model.QuestionCategory][]QuestionTemplate{
	model.CategoryMCQ: {
		{Text: "Which of the following best describes %s?", Level: model.LevelRemember},
		{Text: "Which statement about %s is correct?", Level: model.LevelUnderstand},
		{Text: "Identify the primary purpose of %s.", Level: model.LevelRemember},
		{Text: "Which option is NOT a characteristic of %s?", Level: model.LevelAnalyze},
	},
	model.CategoryShortAnswer: {
		{Text: "Define %s and state its significance.", Level: model.LevelRemember},
		{Text: "Briefly explain the concept of %s.", Level: model.LevelUnderstand},
		{Text: "List the key features of %s.", Level: model.LevelRemember},
		{Text: "How would you apply %s to a real problem? Give one example."},
	},
	model.CategoryLongAnswer: {
		{Text: "Explain %s in detail with suitable examples."},
		{Text: "Discuss the working of %s and analyze its advantages and limitations.", Level: model.LevelAnalyze},
		{Text: "Compare and contrast the main approaches to %s.", Level: model.LevelAnalyze},
		{Text: "Critically evaluate the role of %s in modern systems.", Level: model.LevelEvaluate},
	},
	model.CategoryCaseStudy: {
		{Text: "A production system is failing due to issues related to %s. Analyze the scenario and propose a solution.", Level: model.LevelAnalyze},
		{Text: "Design a solution that uses %s to meet the requirements of a given case. Justify your choices.", Level: model.LevelCreate},
		{Text: "Evaluate how %s was applied in the following case and recommend improvements.", Level: model.LevelEvaluate},
	},
}

var categoryBaseMarks = map[model.QuestionCategory]int{
	model.CategoryMCQ:         1,
	model.CategoryShortAnswer: 3,
	model.CategoryLongAnswer:  8,
	model.CategoryCaseStudy:   10,
}

// Subjects returns the built-in subject names, sorted.
func Subjects() []string {
	names := make([]string, 0, len(subjectTopics))
	for name := range subjectTopics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TopicsFor returns the ordered topic list for a subject. The boolean is
// false for an unknown subject.
func TopicsFor(subject string) ([]string, bool) {
	topics, ok := subjectTopics[subject]
	if !ok {
		return nil, false
	}
	out := make([]string, len(topics))
	copy(out, topics)
	return out, true
}

// TemplatesFor returns the templates for a category. Every known category
// has at least one template.
func TemplatesFor(category model.QuestionCategory) []QuestionTemplate {
	templates, ok := categoryTemplates[category]
	if !ok {
		return nil
	}
	out := make([]QuestionTemplate, len(templates))
	copy(out, templates)
	return out
}

// BaseMarks returns the default mark value for a category, or 0 for an
// unknown category.
func BaseMarks(category model.QuestionCategory) int {
	return categoryBaseMarks[category]
}

// CognitiveLevels returns the ordered level vocabulary.
func CognitiveLevels() []model.CognitiveLevel {
	return model.AllLevels
}
