package langdata

// defaultNonCodeSuffixes marks extensions whose changes never count as code.
var defaultNonCodeSuffixes = []string{
	".md", ".markdown", ".txt", ".rst", ".adoc", ".rdoc",
	".json", ".yml", ".yaml", ".toml", ".ini", ".cfg", ".conf",
	".xml", ".html", ".htm", ".css", ".scss", ".less",
	".csv", ".tsv", ".log", ".lock", ".sum",
	".svg", ".png", ".jpg", ".jpeg", ".gif", ".ico", ".bmp", ".webp",
	".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
	".ttf", ".otf", ".woff", ".woff2", ".eot",
	".zip", ".tar", ".gz", ".bz2", ".7z", ".jar",
	".mp3", ".mp4", ".wav", ".avi", ".mov",
	".po", ".pot", ".mo", ".properties", ".snap",
	".gitattributes", ".editorconfig", ".license",
}

// defaultTextSuffixes marks extensions treated as prose documents.
var defaultTextSuffixes = []string{
	".md", ".markdown", ".txt", ".rst", ".adoc", ".rdoc",
}

// defaultStopwords is a compact English stopword list for pull request
// text analysis.
var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "could", "did",
	"do", "does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"him", "his", "how", "i", "if", "in", "into", "is", "it", "its",
	"itself", "just", "me", "more", "most", "my", "myself", "no", "nor",
	"not", "now", "of", "off", "on", "once", "only", "or", "other", "our",
	"ours", "out", "over", "own", "same", "she", "should", "so", "some",
	"such", "than", "that", "the", "their", "theirs", "them", "then",
	"there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very", "was", "we", "were", "what", "when",
	"where", "which", "while", "who", "whom", "why", "will", "with", "would",
	"you", "your", "yours", "yourself",
}

// defaultReservedWords covers keywords common across mainstream languages.
var defaultReservedWords = []string{
	"abstract", "assert", "async", "await", "bool", "boolean", "break",
	"byte", "case", "catch", "chan", "char", "class", "const", "continue",
	"def", "default", "defer", "delete", "do", "double", "elif", "else",
	"enum", "except", "export", "extends", "extern", "false", "final",
	"finally", "float", "fn", "for", "func", "function", "go", "goto",
	"if", "impl", "implements", "import", "in", "inline", "instanceof",
	"int", "interface", "lambda", "let", "long", "map", "match", "module",
	"mut", "namespace", "new", "nil", "none", "null", "package", "pass",
	"private", "protected", "public", "raise", "range", "return", "select",
	"self", "short", "signed", "sizeof", "static", "struct", "super",
	"switch", "template", "this", "throw", "throws", "trait", "true",
	"try", "type", "typedef", "typeof", "union", "unsigned", "use", "var",
	"virtual", "void", "volatile", "while", "with", "yield",
}
