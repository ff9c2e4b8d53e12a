package render

import (
	"html/template"
	"strings"
)

const stylesheet = `
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }
        h1, h2, h3 {
            color: #2c3e50;
            margin-top: 30px;
        }
        h1 {
            font-size: 2.5em;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        h2 {
            font-size: 1.8em;
            color: #2980b9;
        }
        h3 {
            font-size: 1.4em;
            color: #34495e;
        }
        p {
            margin-bottom: 20px;
            font-size: 1.1em;
        }
        ul, ol {
            margin-bottom: 20px;
            padding-left: 20px;
        }
        a {
            color: #3498db;
            text-decoration: none;
        }
        a:hover {
            text-decoration: underline;
        }
        section, .content-section {
            margin-bottom: 40px;
            padding: 20px;
            background: #f8f9fa;
            border-radius: 5px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.05);
        }
        .table-of-contents {
            background: #f8f9fa;
            padding: 20px;
            border-radius: 5px;
            margin: 20px 0;
        }
        .table-of-contents ul {
            list-style-type: none;
            padding: 0;
        }
        .table-of-contents li {
            margin: 10px 0;
        }
        @media (max-width: 768px) {
            body { padding: 10px; }
            h1 { font-size: 2em; }
            h2 { font-size: 1.5em; }
            h3 { font-size: 1.2em; }
            p { font-size: 1em; }
        }
`

// head is shared by the rendered page and the generated long-form article
const head = `{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0, maximum-scale=5.0">
    <meta name="robots" content="index, follow">
    <link rel="canonical" href="{{.CanonicalURL}}">
    <title>{{.MetaTitle}}</title>
    <meta name="description" content="{{.Description}}">
    <meta name="keywords" content="{{join .Keywords ", "}}">
    <meta property="og:type" content="article">
    <meta property="og:url" content="{{.CanonicalURL}}">
    <meta property="og:title" content="{{.MetaTitle}}">
    <meta property="og:description" content="{{.Description}}">
    <meta property="twitter:card" content="summary">
    <meta property="twitter:url" content="{{.CanonicalURL}}">
    <meta property="twitter:title" content="{{.MetaTitle}}">
    <meta property="twitter:description" content="{{.Description}}">
    <style>{{css}}</style>
</head>
{{end}}`

const pageTemplate = `{{template "head" .}}<body>
    <article itemscope itemtype="https://schema.org/Article">
        <meta itemprop="headline" content="{{.MetaTitle}}">
        <meta itemprop="description" content="{{.Description}}">
        <meta itemprop="author" content="{{.Author}}">
        <meta itemprop="datePublished" content="{{.Published}}">
        <h1 itemprop="name">{{.Title}}</h1>
        <nav class="table-of-contents">
            <h2>Table of Contents</h2>
            <ul>
                <li><a href="#introduction">Introduction</a></li>
            </ul>
        </nav>
        <div itemprop="articleBody">
            <section id="introduction" class="content-section">
                <h2>Introduction</h2>
                <p>{{.Description}}</p>
            </section>
        </div>
    </article>
</body>
</html>
`

const articleTemplate = `{{template "head" .}}<body>
    <article itemscope itemtype="https://schema.org/Article">
        <meta itemprop="headline" content="{{.MetaTitle}}">
        <meta itemprop="description" content="{{.Description}}">
        <meta itemprop="author" content="{{.Author}}">
        <meta itemprop="datePublished" content="{{.Published}}">
        <h1 itemprop="name">{{.Title}}</h1>
        <nav class="table-of-contents">
            <h2>Table of Contents</h2>
            <ul>
                {{- range .Contents}}
                <li><a href="#{{anchor .}}">{{.}}</a></li>
                {{- end}}
            </ul>
        </nav>
        <div itemprop="articleBody">
            <section id="{{anchor (index .Contents 0)}}">
                <h2>{{index .Contents 0}}</h2>
                <p>{{.Description}}</p>
                <p>Welcome to our comprehensive guide on {{.Title}}. This article will help you understand the key concepts and practical applications.</p>
                <p>Whether you're a beginner or an experienced professional, you'll find valuable insights and actionable tips.</p>
            </section>
            <section id="key-features-and-benefits">
                <h2>Key Features and Benefits</h2>
                <p>Here are the main features and benefits of {{.Title}}:</p>
                <ul>
                    <li>Comprehensive overview and understanding</li>
                    <li>Practical applications and real-world use cases</li>
                    <li>Industry best practices and standards</li>
                    <li>Easy integration with existing systems</li>
                    <li>Future trends and developments</li>
                </ul>
            </section>
            <section id="how-to-get-started">
                <h2>How to Get Started</h2>
                <p>Getting started with {{.Title}} is easy. Follow these simple steps:</p>
                <ol>
                    <li>Learn the basics and understand requirements</li>
                    <li>Set up your environment and tools</li>
                    <li>Follow best practices and guidelines</li>
                    <li>Monitor and optimize your results</li>
                </ol>
            </section>
            <section id="best-practices-and-tips">
                <h2>Best Practices and Tips</h2>
                <p>To get the most out of {{.Title}}, follow these best practices:</p>
                <ul>
                    <li>Keep your system updated and maintained</li>
                    <li>Optimize performance regularly</li>
                    <li>Follow security best practices</li>
                    <li>Focus on user experience</li>
                </ul>
            </section>
            <section id="common-questions-and-answers">
                <h2>Common Questions and Answers</h2>
                <div itemscope itemtype="https://schema.org/FAQPage">
                    <div itemscope itemprop="mainEntity" itemtype="https://schema.org/Question">
                        <h3 itemprop="name">What are the main benefits of {{.Title}}?</h3>
                        <div itemscope itemprop="acceptedAnswer" itemtype="https://schema.org/Answer">
                            <div itemprop="text">
                                <p>{{.Title}} offers many benefits. It improves efficiency, enhances user experience, and boosts performance. Learn more in our detailed guide.</p>
                            </div>
                        </div>
                    </div>
                </div>
            </section>
            <section id="case-studies-and-examples">
                <h2>Case Studies and Examples</h2>
                <p>Here are some real-world examples of {{.Title}} in action:</p>
                <ul>
                    <li>Success story: How Company X improved results</li>
                    <li>Implementation: Overcoming challenges</li>
                    <li>Results: Measurable improvements</li>
                </ul>
            </section>
            <section id="additional-resources">
                <h2>Additional Resources</h2>
                <p>Want to learn more about {{.Title}}? Check out these resources:</p>
                <ul>
                    {{- range .Resources}}
                    <li><a href="{{.URL}}" rel="nofollow">{{.Text}}</a></li>
                    {{- end}}
                </ul>
            </section>
            <section id="conclusion">
                <h2>Conclusion</h2>
                <p>{{.Title}} is a powerful tool for modern professionals. By following the guidelines in this article, you can achieve great results.</p>
                <p>Start implementing these best practices today to see the benefits.</p>
            </section>
        </div>
    </article>
</body>
</html>
`

var funcs = template.FuncMap{
	"anchor": Anchor,
	"join":   strings.Join,
	"css":    func() template.CSS { return template.CSS(stylesheet) },
}

var (
	pageTmpl    = parse("page", pageTemplate)
	articleTmpl = parse("article", articleTemplate)
)

func parse(name, body string) *template.Template {
	layout := template.Must(template.New("layout").Funcs(funcs).Parse(head))
	return template.Must(layout.New(name).Parse(body))
}

// Anchor turns a heading into a fragment id: lower case, spaces as dashes
func Anchor(heading string) string {
	return strings.ReplaceAll(strings.ToLower(heading), " ", "-")
}
