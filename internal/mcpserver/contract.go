package mcpserver

// NoteFormatContract describes the reference syntax that LLM consumers
// should follow when creating notes.
const NoteFormatContract = `# Note Format Contract

Notes are free text. Structure comes only from two token kinds in the body.

## References

` + "```" + `
[[Target Title]]
` + "```" + `

- A reference links the note to the note whose title equals the label,
  compared case-insensitively after trimming.
- If no such note exists, an empty note with that title is created.
- ` + "`" + `[[Target|shown text]]` + "`" + ` links to Target.
- A note never links to itself. Repeating a reference adds no extra link.
- Text inside the brackets is kept exactly as written; do not rewrite
  references produced by another system.

## Hashtags

` + "```" + `
#project #follow-up
` + "```" + `

- Each distinct hashtag files the note under a topic.
- Topic slugs are lowercase; ` + "`" + `#Project` + "`" + ` and ` + "`" + `#project` + "`" + ` are the same topic.
- A hashtag starts at a line start or after whitespace, begins with a letter,
  and continues over letters, digits, ` + "`" + `_` + "`" + `, ` + "`" + `-` + "`" + ` and ` + "`" + `/` + "`" + `.

## Titles

- Pass ` + "`" + `title` + "`" + ` explicitly when you know it. Otherwise the first non-empty
  line of the content becomes the title, with leading ` + "`" + `#` + "`" + ` heading markers
  stripped.
- When two notes share a title, references resolve to the most recently
  updated one.

## Example

` + "```" + `markdown
# Call with Dana 2025-01-20

Discussed the [[Q1 Roadmap]] and the hiring plan with [[Dana Lee]].

#meeting-notes #hiring
` + "```" + `
`
