package mcpserver

// CollectionFormatContract describes the canonical collection and
// document format that LLM consumers should follow when inserting
// documents.
const CollectionFormatContract = `# Ansuz Collection Format Contract

Content in Ansuz lives in named collections. Each collection declares an
ordered list of fields; every document is a JSON object keyed by those
field titles.

## Collection declaration

` + "```" + `yaml
name: Articles                # REQUIRED - unique collection name
strict: true                  # OPTIONAL - drop keys outside the schema
fields:
  - title: Title              # REQUIRED - unique among siblings
    widget: text              # presentation component; never stored
  - title: Tags
    widget: tags              # stored as an array
  - title: Cover
    widget: image
    path: uploads/covers      # file uploads land in this directory
  - title: Meta               # group: children flatten for lookup,
    widget: group             # but contribute nothing to storage
    fields:
      - title: Author
        widget: text
` + "```" + `

## Rules

1. **Field titles are the document keys.** A document for the collection
   above looks like ` + "`" + `{"Title": "...", "Tags": [...], "Cover": {...}}` + "`" + `.
2. **Strict collections drop unknown keys silently.** Non-strict
   collections accept any shape.
3. **File fields store metadata, not bytes.** An uploaded file becomes
   ` + "`" + `{"originalname": "x.png", "mimetype": "image/png"}` + "`" + `; the bytes live
   under the field's media path.
4. **Stringified JSON is coerced.** A field value that parses as JSON is
   stored decoded; anything else is kept as the literal string.
5. **Identifiers and timestamps are managed by the store.** Documents
   carry ` + "`" + `_id` + "`" + `, ` + "`" + `createdAt` + "`" + `, and ` + "`" + `updatedAt` + "`" + ` (unix milliseconds);
   never set them on insert.
6. **Filter expressions** are JSON objects: plain values match by
   equality, dotted keys (` + "`" + `"Meta.Author"` + "`" + `) descend into nested values,
   and operator objects support ` + "`" + `$exists` + "`" + `, ` + "`" + `$ne` + "`" + `, ` + "`" + `$in` + "`" + `, ` + "`" + `$gt` + "`" + `,
   ` + "`" + `$gte` + "`" + `, ` + "`" + `$lt` + "`" + `, ` + "`" + `$lte` + "`" + `.

## Assets

- Import assets via the ` + "`" + `import_asset` + "`" + ` tool. It returns the media path
  the asset was saved under.
- Imported assets land in the shared ` + "`" + `imports/` + "`" + ` directory.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
`
