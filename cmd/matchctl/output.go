package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"talent-match/internal/domain/matching"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	titleColor = color.New(color.FgYellow, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgRed)
)

func renderPage(w io.Writer, title string, p matching.Page, withSalary bool) {
	titleColor.Fprintf(w, "\n%s\n", title)

	header := []string{"#", "ID", "Name", "Total", "Skill", "Position", "Education", "Bonus"}
	if withSalary {
		header = append(header, "Salary")
	}
	header = append(header, "Missing")

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	offset := (p.CurrentPage - 1) * p.PageSize
	for i, it := range p.Items {
		row := []string{
			strconv.Itoa(offset + i + 1),
			it.EntityID.String(),
			it.Name,
			formatScore(it.Result.TotalScore),
			formatScore(it.Result.SkillScore),
			formatScore(it.Result.PositionScore),
			formatScore(it.Result.EducationScore),
			formatScore(it.Result.ExperienceBonus),
		}
		if withSalary {
			salary := "-"
			if it.Salary > 0 {
				salary = strconv.Itoa(it.Salary)
			}
			row = append(row, salary)
		}
		row = append(row, missingNames(it.Result.MissingSkills))
		table.Append(row)
	}
	table.Render()

	fmt.Fprintf(w, "page %d/%d, %d total\n", p.CurrentPage, p.TotalPages, p.TotalItems)
}

func renderScore(w io.Writer, s matching.Scored) {
	titleColor.Fprintf(w, "\n%s (%s)\n", s.Name, s.EntityID)

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Total", "Skill", "Position", "Education", "Bonus"})
	summary.Append([]string{
		formatScore(s.Result.TotalScore),
		formatScore(s.Result.SkillScore),
		formatScore(s.Result.PositionScore),
		formatScore(s.Result.EducationScore),
		formatScore(s.Result.ExperienceBonus),
	})
	summary.Render()

	if len(s.Result.MatchedSkills) > 0 {
		okColor.Fprintln(w, "Matched skills")
		matched := tablewriter.NewWriter(w)
		matched.SetHeader([]string{"Required", "Candidate", "Relation", "Similarity", "Importance"})
		for _, m := range s.Result.MatchedSkills {
			matched.Append([]string{
				m.RequiredName,
				m.SkillName,
				string(m.Relation),
				strconv.FormatFloat(m.Similarity, 'f', 2, 64),
				strconv.FormatFloat(m.Importance, 'f', 2, 64),
			})
		}
		matched.Render()
	}

	if len(s.Result.MissingSkills) > 0 {
		warnColor.Fprintf(w, "Missing skills: %s\n", missingNames(s.Result.MissingSkills))
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func missingNames(ms []matching.MissingSkill) string {
	if len(ms) == 0 {
		return "-"
	}
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.SkillName)
	}
	return strings.Join(names, ", ")
}
