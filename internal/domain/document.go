package domain

// Language — тег языка редактора из фиксированного набора.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangHTML       Language = "html"
	LangCSS        Language = "css"
	LangJSON       Language = "json"
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangSQL        Language = "sql"
	LangMarkdown   Language = "markdown"
	LangYAML       Language = "yaml"
	LangShell      Language = "shell"
	LangXML        Language = "xml"
)

var Languages = []Language{
	LangJavaScript, LangTypeScript, LangHTML, LangCSS, LangJSON,
	LangPython, LangJava, LangC, LangCPP, LangCSharp, LangPHP,
	LangRuby, LangGo, LangRust, LangSQL, LangMarkdown, LangYAML,
	LangShell, LangXML,
}

func (l Language) Supported() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// DocumentState — общий документ комнаты. Один на сессию, не персистится.
// LastWriteAt — unix-миллисекунды, только как подсказка о свежести;
// это НЕ vector clock, применяется последний принятый апдейт.
type DocumentState struct {
	Content     string
	Language    Language
	LastWriter  string
	LastWriteAt int64
}

var placeholders = map[Language]string{
	LangJavaScript: "// Write your JavaScript code here",
	LangPython:     "# Write your Python code here",
	LangJava:       "public class Main {\n    public static void main(String[] args) {\n        // Write your Java code here\n    }\n}",
	LangC:          "int main() {\n    // Write your C code here\n    return 0;\n}",
	LangCPP:        "int main() {\n    // Write your C++ code here\n    return 0;\n}",
	LangCSharp:     "using System;\n\nclass Program {\n    static void Main(string[] args) {\n        // Write your C# code here\n    }\n}",
	LangPHP:        "<?php\n// Write your PHP code here\n?>",
	LangRuby:       "# Write your Ruby code here",
	LangGo:         "package main\n\nimport \"fmt\"\n\nfunc main() {\n    // Write your Go code here\n}",
	LangRust:       "fn main() {\n    // Write your Rust code here\n}",
}

// Placeholder возвращает стартовый сниппет для языка.
// Смена языка сбрасывает контент локально до того, как пользователь печатает.
func Placeholder(l Language) string {
	if p, ok := placeholders[l]; ok {
		return p
	}
	return "// Write your " + string(l) + " code here"
}
