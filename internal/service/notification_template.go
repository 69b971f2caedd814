package service

import (
	"bytes"
	"html/template"
)

const purchaseEmailSubject = "Course Purchase Successful!"

var purchaseEmailTemplate = template.Must(template.New("purchase").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Thank you for your purchase, {{.Name}}!</h2>
    <p>You are now enrolled in <strong>{{.CourseTitle}}</strong>.</p>
    <p>You can start learning right away from your courses page.</p>
    <p>Happy learning!</p>
  </body>
</html>
`))

func renderPurchaseEmail(n *PurchaseNotification) (string, error) {
	name := n.Name
	if name == "" {
		name = "there"
	}

	var buf bytes.Buffer
	err := purchaseEmailTemplate.Execute(&buf, struct {
		Name        string
		CourseTitle string
	}{
		Name:        name,
		CourseTitle: n.CourseTitle,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
