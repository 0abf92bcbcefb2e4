package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxDiffChars        = 3000
	maxTechDiffChars    = 1000
	maxGroupSummaries   = 10
	maxProfileSummaries = 5
)

// IssueSystemPrompt guides per-issue summarization.
const IssueSystemPrompt = `You are an expert technical analyst specializing in GitHub issue summarization.

Your task is to analyze GitHub issues and create concise, technical summaries that capture:
1. The core problem or feature request
2. Technical context and affected components
3. Key discussion points and resolution approach
4. Impact and priority level

Guidelines:
- Focus on technical aspects and implementation details
- Identify the root cause or requirements clearly
- Keep summaries under 200 words
- Include relevant file paths, functions, or modules mentioned

Output a structured summary in this format:
**Problem/Request**: Brief description of the issue
**Technical Context**: Affected components and systems
**Resolution Approach**: How it was addressed or proposed solution
**Impact**: Scope and importance of the change`

// CommitSystemPrompt guides per-commit summarization.
const CommitSystemPrompt = `You are an expert code reviewer specializing in commit analysis and summarization.

Your task is to analyze Git commits and create technical summaries that capture:
1. What was changed and why
2. Technical implementation details
3. Impact on system architecture

Guidelines:
- Focus on the technical implementation and code changes
- Highlight bug fixes, feature additions, or performance improvements
- Keep summaries under 150 words
- Mention specific files, functions, or modules affected

Output a structured summary in this format:
**Change Type**: Feature/Bug Fix/Refactor/Performance/etc.
**Implementation**: Technical details of what was changed
**Files Affected**: Key files and their modifications
**Impact**: Effect on codebase and functionality`

// RepositoryWorkSystemPrompt guides per-contributor-per-repository summarization.
const RepositoryWorkSystemPrompt = `You are an expert software engineering analyst specializing in contributor activity analysis.

Your task is to analyze a contributor's work within a specific repository and create a comprehensive summary that captures:
1. Overall contribution pattern and focus areas
2. Technical expertise demonstrated
3. Impact on project architecture and features

Guidelines:
- Synthesize information from multiple commits and issues
- Identify the contributor's primary areas of focus
- Highlight significant contributions and innovations
- Keep summaries under 300 words
- Focus on value delivered to the project

Output a structured summary in this format:
**Primary Focus**: Main areas of contribution
**Technical Contributions**: Key features, fixes, or improvements delivered
**Expertise Demonstrated**: Technologies and skills evident in work
**Impact**: Significance of contributions to the project`

// ContributorSystemPrompt guides cross-repository contributor profiles.
const ContributorSystemPrompt = `You are an expert software engineering analyst specializing in developer profile creation.

Your task is to analyze a contributor's work across multiple repositories and create a comprehensive professional profile that captures:
1. Technical skills and expertise areas
2. Contribution patterns and specializations
3. Impact and value delivered across projects

Guidelines:
- Synthesize information from multiple repository contributions
- Identify overarching technical skills and expertise
- Keep profiles under 400 words
- Focus on professional value and technical capabilities

Output a structured profile in this format:
**Technical Expertise**: Core skills and technology stack
**Specialization Areas**: Primary focus areas and domains
**Contribution Style**: How they approach development and collaboration
**Impact & Value**: Significant contributions and innovations
**Professional Strengths**: Key capabilities and growth areas`

// TechnologyDetectionPrompt asks for a JSON array of technology names.
const TechnologyDetectionPrompt = `Analyze the following code changes and file paths to identify technologies used:

Identify:
1. Programming languages
2. Frameworks and libraries
3. Tools and platforms

Return as a JSON array of technology names. Return only the JSON array, no other text.`

// SkillsExtractionPrompt asks for categorized skills as JSON.
const SkillsExtractionPrompt = `Based on the technical work summary provided, extract and categorize the developer's skills:

1. Programming Languages
2. Frameworks & Libraries
3. Tools & Technologies
4. Architecture & Design Patterns
5. Domain Expertise

Return as a JSON object with arrays for each category. Return only the JSON object, no other text.`

// IssueInput holds the fields rendered into the issue user message.
type IssueInput struct {
	Title     string
	Body      string
	Labels    []string
	State     string
	CreatedAt string
}

func IssueUserMessage(in IssueInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", orUnknown(in.Title))
	fmt.Fprintf(&b, "Body: %s\n", orUnknown(in.Body))
	fmt.Fprintf(&b, "Labels: %s\n", strings.Join(in.Labels, ", "))
	fmt.Fprintf(&b, "State: %s\n", orUnknown(in.State))
	fmt.Fprintf(&b, "Created: %s", orUnknown(in.CreatedAt))
	return b.String()
}

// CommitInput holds the fields rendered into the commit user message.
type CommitInput struct {
	Message      string
	Diff         string
	FilesChanged []string
	Additions    int
	Deletions    int
	SHA          string
}

func CommitUserMessage(in CommitInput) string {
	diff := Truncate(in.Diff, maxDiffChars)
	var b strings.Builder
	fmt.Fprintf(&b, "Commit message: %s\n", orUnknown(in.Message))
	fmt.Fprintf(&b, "Diff/Patch: %s\n", diff)
	fmt.Fprintf(&b, "Files changed: %s\n", strings.Join(in.FilesChanged, ", "))
	fmt.Fprintf(&b, "Additions: %d lines\n", in.Additions)
	fmt.Fprintf(&b, "Deletions: %d lines\n", in.Deletions)
	fmt.Fprintf(&b, "SHA: %s", orUnknown(in.SHA))
	return b.String()
}

// RepositoryWorkInput holds the fields rendered into the repository-work user message.
type RepositoryWorkInput struct {
	Repository        string
	Contributor       string
	CommitSummaries   []string
	IssueSummaries    []string
	FilesTouched      []string
	FirstContribution string
	LastContribution  string
	CommitCount       int
	IssueCount        int
}

func RepositoryWorkUserMessage(in RepositoryWorkInput) string {
	commits := capStrings(in.CommitSummaries, maxGroupSummaries)
	issues := capStrings(in.IssueSummaries, maxGroupSummaries)

	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", orUnknown(in.Repository))
	fmt.Fprintf(&b, "Contributor: %s\n\n", orUnknown(in.Contributor))
	fmt.Fprintf(&b, "Commit summaries:\n%s\n\n", strings.Join(commits, "\n"))
	fmt.Fprintf(&b, "Issue summaries:\n%s\n\n", strings.Join(issues, "\n"))
	fmt.Fprintf(&b, "Files frequently modified: %s\n", strings.Join(in.FilesTouched, ", "))
	fmt.Fprintf(&b, "Contribution timeframe: %s to %s\n", orUnknown(in.FirstContribution), orUnknown(in.LastContribution))
	fmt.Fprintf(&b, "Total commits: %d\n", in.CommitCount)
	fmt.Fprintf(&b, "Total issues: %d", in.IssueCount)
	return b.String()
}

// ContributorInput holds the fields rendered into the contributor user message.
type ContributorInput struct {
	Username            string
	RepositorySummaries []string
	TotalCommits        int
	TotalIssues         int
	Technologies        []string
	RepositoryCount     int
}

func ContributorUserMessage(in ContributorInput) string {
	repos := capStrings(in.RepositorySummaries, maxProfileSummaries)

	var b strings.Builder
	fmt.Fprintf(&b, "Contributor: %s\n\n", orUnknown(in.Username))
	fmt.Fprintf(&b, "Repository work summaries:\n%s\n\n", strings.Join(repos, "\n\n"))
	fmt.Fprintf(&b, "Total commits: %d\n", in.TotalCommits)
	fmt.Fprintf(&b, "Total issues: %d\n", in.TotalIssues)
	fmt.Fprintf(&b, "Technologies used: %s\n", strings.Join(in.Technologies, ", "))
	fmt.Fprintf(&b, "Repositories contributed to: %d", in.RepositoryCount)
	return b.String()
}

func TechnologyDetectionUserMessage(filesChanged []string, commitMessage, diff string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Files changed: %s\n", strings.Join(filesChanged, ", "))
	fmt.Fprintf(&b, "Commit message: %s\n", commitMessage)
	fmt.Fprintf(&b, "Code diff: %s", Truncate(diff, maxTechDiffChars))
	return b.String()
}

func SkillsExtractionUserMessage(workSummary string) string {
	return "Technical work: " + workSummary
}

// Truncate cuts s to at most n bytes at a rune boundary, marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n... (truncated)"
}

func capStrings(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
